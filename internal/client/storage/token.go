package storage

// AccessTokenKey is the fixed local storage key of the bearer credential.
const AccessTokenKey = "accessToken"

// TokenStore holds the current access credential. It keeps no in-memory
// copy: every read goes to local storage, so a logout or refresh performed
// anywhere takes effect on the very next request.
type TokenStore struct {
	ls *LocalStorage
}

// NewTokenStore returns a TokenStore persisting to ls.
func NewTokenStore(ls *LocalStorage) *TokenStore {
	return &TokenStore{ls: ls}
}

// AccessToken returns the stored credential, or "" when there is none.
func (t *TokenStore) AccessToken() (string, error) {
	v, ok, err := t.ls.GetItem(AccessTokenKey)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

// SaveAccessToken persists token as the current credential.
func (t *TokenStore) SaveAccessToken(token string) error {
	return t.ls.SetItem(AccessTokenKey, token)
}

// ClearAccessToken removes the credential.
func (t *TokenStore) ClearAccessToken() error {
	return t.ls.RemoveItem(AccessTokenKey)
}
