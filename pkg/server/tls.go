package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// TLSConfig enables HTTPS.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	CertFile string `yaml:"cert_file" toml:"cert_file" validate:"required_with=KeyFile"`
	KeyFile  string `yaml:"key_file" toml:"key_file" validate:"required_with=CertFile"`
	// ClientCAFile, when set, asks clients for certificates signed by
	// these CAs and verifies any that are presented.
	ClientCAFile string `yaml:"client_ca_file" toml:"client_ca_file"`
	// SelfSigned generates a throwaway certificate for Hosts when no
	// files are given. For local use only.
	SelfSigned bool          `yaml:"self_signed" toml:"self_signed"`
	Hosts      []string      `yaml:"hosts" toml:"hosts"`
	ValidFor   time.Duration `yaml:"valid_for" toml:"valid_for" validate:"gte=0"`
}

var errNoCertificate = errors.New("tls enabled but neither cert_file/key_file nor self_signed is set")

// Load builds the server-side TLS configuration. It returns nil when TLS
// is disabled.
func (c TLSConfig) Load() (*tls.Config, error) {
	if !c.Enabled {
		return nil, nil
	}
	var (
		cert tls.Certificate
		err  error
	)
	switch {
	case c.CertFile != "" && c.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load certificate: %w", err)
		}
	case c.SelfSigned:
		cert, err = selfSigned(c.Hosts, c.ValidFor)
		if err != nil {
			return nil, fmt.Errorf("generate certificate: %w", err)
		}
	default:
		return nil, errNoCertificate
	}

	out := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if c.ClientCAFile != "" {
		data, err := os.ReadFile(c.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("read client CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("client CA %s: no certificates found", c.ClientCAFile)
		}
		out.ClientCAs = pool
		out.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return out, nil
}

// selfSigned makes an ECDSA certificate valid for hosts, which may be
// names or IP addresses.
func selfSigned(hosts []string, validFor time.Duration) (tls.Certificate, error) {
	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1"}
	}
	if validFor <= 0 {
		validFor = 30 * 24 * time.Hour
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}

	now := time.Now()
	tmpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"etymograph"}, CommonName: hosts[0]},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	)
}
