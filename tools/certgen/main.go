// Package main generates the development CA and the catalog server's TLS
// certificate, writing them under the output directory. An existing CA in
// that directory is reused so clients keep trusting it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/BookKeeper/internal/certgen"
)

const caCommonName = "BookKeeper Dev CA"

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	flag.Parse()

	created, err := run(*dir, splitHosts(*hosts))
	if err != nil {
		log.Fatal(err)
	}
	if created {
		fmt.Println("Generated a new CA; pass", filepath.Join(*dir, "ca.crt"), "to clients with -ca")
	}
	fmt.Println("Certificates generated into", *dir)
}

// run writes server.crt/server.key signed by dir/ca.crt, creating the CA
// first when it is missing. It reports whether a CA was created.
func run(dir string, hosts []string) (bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	caCertPath := filepath.Join(dir, "ca.crt")
	caKeyPath := filepath.Join(dir, "ca.key")

	created := false
	if _, err := os.Stat(caCertPath); errors.Is(err, os.ErrNotExist) {
		caCert, caKey, err := certgen.GenerateCA(caCommonName)
		if err != nil {
			return false, err
		}
		keyPEM, err := certgen.EncodeECKey(caKey)
		if err != nil {
			return false, err
		}
		if err := certgen.WritePair(caCertPath, caKeyPath, certgen.EncodeCertificate(caCert.Raw), keyPEM); err != nil {
			return false, err
		}
		created = true
	}

	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	if err != nil {
		return created, err
	}
	certPEM, keyPEM, err := certgen.GenerateServerCertificate(hosts, caCert, caKey)
	if err != nil {
		return created, err
	}
	return created, certgen.WritePair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), certPEM, keyPEM)
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
