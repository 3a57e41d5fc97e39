package server

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTLSConfig_Disabled(t *testing.T) {
	cfg, err := TLSConfig{}.Load()
	if err != nil || cfg != nil {
		t.Errorf("Expected nil config and error when disabled, got %v, %v", cfg, err)
	}
}

func TestTLSConfig_NoCertificate(t *testing.T) {
	_, err := TLSConfig{Enabled: true}.Load()
	if !errors.Is(err, errNoCertificate) {
		t.Errorf("Expected errNoCertificate, got %v", err)
	}
}

func TestTLSConfig_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := TLSConfig{
		Enabled:  true,
		CertFile: filepath.Join(dir, "cert.pem"),
		KeyFile:  filepath.Join(dir, "key.pem"),
	}.Load()
	if err == nil {
		t.Error("Expected error for missing certificate files")
	}
}

func TestTLSConfig_SelfSigned(t *testing.T) {
	cfg, err := TLSConfig{Enabled: true, SelfSigned: true, Hosts: []string{"lexicon.local", "127.0.0.1"}}.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("Expected one certificate, got %d", len(cfg.Certificates))
	}
	leaf, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(leaf.DNSNames) != 1 || leaf.DNSNames[0] != "lexicon.local" {
		t.Errorf("Expected DNS name lexicon.local, got %v", leaf.DNSNames)
	}
	if len(leaf.IPAddresses) != 1 || leaf.IPAddresses[0].String() != "127.0.0.1" {
		t.Errorf("Expected IP 127.0.0.1, got %v", leaf.IPAddresses)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("Expected TLS 1.2 minimum, got %x", cfg.MinVersion)
	}
}

func TestTLSConfig_FilesAndClientCA(t *testing.T) {
	cert, err := selfSigned(nil, time.Hour)
	if err != nil {
		t.Fatalf("selfSigned failed: %v", err)
	}
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]})
	keyDER, err := x509.MarshalPKCS8PrivateKey(cert.PrivateKey)
	if err != nil {
		t.Fatalf("Marshal key failed: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, ClientCAFile: certFile}.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ClientCAs == nil || cfg.ClientAuth != tls.VerifyClientCertIfGiven {
		t.Error("Expected client CA verification to be configured")
	}

	_, err = TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, ClientCAFile: keyFile}.Load()
	if err == nil {
		t.Error("Expected error for a client CA file with no certificates")
	}
}

func TestGracefulServer_ServesTLS(t *testing.T) {
	cfg := Config{Addr: "127.0.0.1:0", TLS: TLSConfig{Enabled: true, SelfSigned: true}}
	gs := NewGracefulServer(cfg, okHandler(), nil)
	addr, cancel, done := start(t, gs)
	defer func() {
		cancel()
		<-done
	}()

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed test certificate
	}}
	resp, err := client.Get("https://" + addr + "/")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("Expected body ok, got %q", body)
	}
	if resp.TLS == nil {
		t.Error("Expected a TLS connection")
	}
}

func TestGracefulServer_TLSMisconfigured(t *testing.T) {
	gs := NewGracefulServer(Config{Addr: "127.0.0.1:0", TLS: TLSConfig{Enabled: true}}, okHandler(), nil)
	_, cancel, done := start(t, gs)
	defer cancel()
	select {
	case err := <-done:
		if !errors.Is(err, errNoCertificate) {
			t.Errorf("Expected errNoCertificate, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve should fail fast")
	}
}
