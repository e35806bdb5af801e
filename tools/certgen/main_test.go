package main

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRun_CreatesAndReusesCA(t *testing.T) {
	dir := t.TempDir()

	created, err := run(dir, []string{"localhost"})
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !created {
		t.Fatal("first run must create the CA")
	}
	firstCA, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}

	created, err = run(dir, []string{"localhost", "127.0.0.1"})
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if created {
		t.Error("second run must reuse the CA")
	}
	secondCA, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(firstCA, secondCA) {
		t.Error("CA certificate changed between runs")
	}

	pair, err := tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	if err != nil {
		t.Fatalf("server pair unusable: %v", err)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(secondCA) {
		t.Fatal("cannot load CA")
	}
	if _, err := leaf.Verify(x509.VerifyOptions{DNSName: "localhost", Roots: pool}); err != nil {
		t.Errorf("server certificate does not verify: %v", err)
	}
}

func TestSplitHosts(t *testing.T) {
	got := splitHosts(" localhost, ,127.0.0.1,")
	want := []string{"localhost", "127.0.0.1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitHosts = %v; want %v", got, want)
	}
}
