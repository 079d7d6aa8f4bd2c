package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	goerrors "github.com/goliatone/go-errors"
)

// KeyMaterial holds the RSA keypair used to sign and verify bearer tokens.
// It is built once at process start and passed by reference; nothing mutates
// it afterwards, so it is safe to share across requests without locking.
//
// A missing or malformed key is a startup precondition failure, not a
// per-request error: use MustLoadKeyMaterial in main and let the process die
// before it accepts traffic it cannot authenticate.
type KeyMaterial struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// LoadKeyMaterial parses a PEM encoded RSA private key (PKCS#8 or PKCS#1)
// and, optionally, a PEM encoded public key (PKIX). When publicPEM is empty
// the public key is derived from the private key.
func LoadKeyMaterial(privatePEM, publicPEM []byte) (*KeyMaterial, error) {
	private, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, err
	}

	public := &private.PublicKey
	if len(publicPEM) > 0 {
		if public, err = parsePublicKey(publicPEM); err != nil {
			return nil, err
		}
	}

	return &KeyMaterial{private: private, public: public}, nil
}

// LoadKeyMaterialFromFiles reads PEM files from disk. publicPath may be empty.
func LoadKeyMaterialFromFiles(privatePath, publicPath string) (*KeyMaterial, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read private key file").
			WithMetadata(map[string]any{"path": privatePath})
	}

	var publicPEM []byte
	if publicPath != "" {
		if publicPEM, err = os.ReadFile(publicPath); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read public key file").
				WithMetadata(map[string]any{"path": publicPath})
		}
	}

	return LoadKeyMaterial(privatePEM, publicPEM)
}

// MustLoadKeyMaterial panics on load failure. Call it during boot only.
func MustLoadKeyMaterial(privatePath, publicPath string) *KeyMaterial {
	km, err := LoadKeyMaterialFromFiles(privatePath, publicPath)
	if err != nil {
		panic("auth: cannot load signing keys: " + err.Error())
	}
	return km
}

// NewKeyMaterial wraps an already parsed keypair, mostly useful in tests.
func NewKeyMaterial(private *rsa.PrivateKey) *KeyMaterial {
	return &KeyMaterial{private: private, public: &private.PublicKey}
}

// VerifierKeyMaterial builds verify-only material. Signing with it returns
// ErrSigningKeyUnavailable, which keeps verifier deployments from ever
// holding the private key.
func VerifierKeyMaterial(public *rsa.PublicKey) *KeyMaterial {
	return &KeyMaterial{public: public}
}

// PrivateKey returns the signing key, nil for verify-only material.
func (k *KeyMaterial) PrivateKey() *rsa.PrivateKey {
	return k.private
}

// PublicKey returns the verification key.
func (k *KeyMaterial) PublicKey() *rsa.PublicKey {
	return k.public
}

// CanSign reports whether this material carries a private key.
func (k *KeyMaterial) CanSign() bool {
	return k != nil && k.private != nil
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, goerrors.New("no PEM block found in private key", goerrors.CategoryInternal)
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, goerrors.New("private key is not RSA", goerrors.CategoryInternal)
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse RSA private key")
	}
	return key, nil
}

func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, goerrors.New("no PEM block found in public key", goerrors.CategoryInternal)
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse RSA public key")
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, goerrors.New("public key is not RSA", goerrors.CategoryInternal)
	}
	return rsaKey, nil
}
