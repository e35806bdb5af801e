package storage

import (
	"path/filepath"
	"testing"
)

func TestTokenStore_Lifecycle(t *testing.T) {
	ls := NewLocalStorage(filepath.Join(t.TempDir(), "storage.json"), nil)
	ts := NewTokenStore(ls)

	tok, err := ts.AccessToken()
	if err != nil || tok != "" {
		t.Fatalf("fresh store AccessToken = %q, %v; want empty", tok, err)
	}

	if err := ts.SaveAccessToken("abc"); err != nil {
		t.Fatalf("SaveAccessToken: %v", err)
	}
	if tok, _ := ts.AccessToken(); tok != "abc" {
		t.Errorf("AccessToken = %q; want abc", tok)
	}

	// the fixed key is what other processes read
	if v, ok, _ := ls.GetItem(AccessTokenKey); !ok || v != "abc" {
		t.Errorf("raw item = %q, %v", v, ok)
	}

	if err := ts.ClearAccessToken(); err != nil {
		t.Fatalf("ClearAccessToken: %v", err)
	}
	if tok, _ := ts.AccessToken(); tok != "" {
		t.Errorf("AccessToken after clear = %q; want empty", tok)
	}
}

func TestTokenStore_NoCachedCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	ts := NewTokenStore(NewLocalStorage(path, nil))
	other := NewTokenStore(NewLocalStorage(path, nil))

	_ = ts.SaveAccessToken("first")
	if tok, _ := ts.AccessToken(); tok != "first" {
		t.Fatalf("AccessToken = %q", tok)
	}
	_ = other.ClearAccessToken()
	if tok, _ := ts.AccessToken(); tok != "" {
		t.Errorf("logout elsewhere not visible: %q", tok)
	}
}
