package cipherbox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
)

// Key source names accepted by NewKeyProvider.
const (
	SourceEphemeral = "ephemeral"
	SourceFile      = "file"
	SourceEnv       = "env"
)

// Key is symmetric key material with a stable identifier.
type Key struct {
	ID       string
	Material []byte
}

// KeyProvider supplies the key used to build a Box at startup.
type KeyProvider interface {
	Key() (Key, error)
	Source() string
}

// GenerateKey returns a new random key with a fresh UUID.
func GenerateKey() (Key, error) {
	material := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(material); err != nil {
		return Key{}, fmt.Errorf("generate key: %w", err)
	}
	return Key{ID: uuid.NewString(), Material: material}, nil
}

// EphemeralKeyProvider generates one key per provider. Documents encrypted with
// it cannot be read once the process exits.
type EphemeralKeyProvider struct {
	key *Key
}

// NewEphemeralKeyProvider returns a provider holding a freshly generated key.
func NewEphemeralKeyProvider() (*EphemeralKeyProvider, error) {
	k, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	return &EphemeralKeyProvider{key: &k}, nil
}

// Key returns the in-memory key.
func (p *EphemeralKeyProvider) Key() (Key, error) {
	return *p.key, nil
}

// Source returns SourceEphemeral.
func (p *EphemeralKeyProvider) Source() string { return SourceEphemeral }

// keyFile is the on-disk representation used by FileKeyProvider.
type keyFile struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// FileKeyProvider loads the key from a JSON file, creating the file with a new
// key (mode 0600) when it does not exist.
type FileKeyProvider struct {
	Path string
}

// Key loads or creates the key file. When several processes create it at once,
// exactly one key is published and every caller returns that key.
func (p *FileKeyProvider) Key() (Key, error) {
	k, err := p.load()
	if errors.Is(err, os.ErrNotExist) {
		return p.create()
	}
	return k, err
}

func (p *FileKeyProvider) load() (Key, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Key{}, fmt.Errorf("read key file: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return Key{}, fmt.Errorf("parse key file %s: %w", p.Path, err)
	}
	material, err := decodeMaterial(kf.Key)
	if err != nil {
		return Key{}, fmt.Errorf("key file %s: %w", p.Path, err)
	}
	return Key{ID: kf.ID, Material: material}, nil
}

// create writes a new key to a temp file and links it into place. The link
// fails if the path already exists, so an existing key is never replaced and
// readers never see a partial file.
func (p *FileKeyProvider) create() (Key, error) {
	k, err := GenerateKey()
	if err != nil {
		return Key{}, err
	}
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Key{}, fmt.Errorf("create key directory: %w", err)
	}
	data, err := json.Marshal(keyFile{ID: k.ID, Key: base64.StdEncoding.EncodeToString(k.Material)})
	if err != nil {
		return Key{}, fmt.Errorf("marshal key file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".docvault-key-*")
	if err != nil {
		return Key{}, fmt.Errorf("write key file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	_, writeErr := tmp.Write(data)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, syncErr, closeErr); err != nil {
		return Key{}, fmt.Errorf("write key file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return Key{}, fmt.Errorf("write key file: %w", err)
	}

	if err := os.Link(tmpPath, p.Path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return p.load()
		}
		return Key{}, fmt.Errorf("write key file: %w", err)
	}
	return k, nil
}

// Source returns SourceFile.
func (p *FileKeyProvider) Source() string { return SourceFile }

// EnvKeyProvider reads base64 key material from an environment variable.
type EnvKeyProvider struct {
	Var    string
	Lookup func(string) (string, bool)
}

// Key decodes the variable's value. The key ID is "env:" plus the variable name.
func (p *EnvKeyProvider) Key() (Key, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	raw, ok := lookup(p.Var)
	if !ok || raw == "" {
		return Key{}, fmt.Errorf("environment variable %s is not set", p.Var)
	}
	material, err := decodeMaterial(raw)
	if err != nil {
		return Key{}, fmt.Errorf("%s: %w", p.Var, err)
	}
	return Key{ID: "env:" + p.Var, Material: material}, nil
}

// Source returns SourceEnv.
func (p *EnvKeyProvider) Source() string { return SourceEnv }

func decodeMaterial(s string) ([]byte, error) {
	material, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(material) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(material))
	}
	return material, nil
}

// NewKeyProvider returns the provider for source. path is used by the file
// source and envVar by the env source.
func NewKeyProvider(source, path, envVar string) (KeyProvider, error) {
	switch source {
	case SourceEphemeral:
		return NewEphemeralKeyProvider()
	case SourceFile, "":
		if path == "" {
			return nil, fmt.Errorf("key source %q requires a path", SourceFile)
		}
		return &FileKeyProvider{Path: path}, nil
	case SourceEnv:
		if envVar == "" {
			return nil, fmt.Errorf("key source %q requires a variable name", SourceEnv)
		}
		return &EnvKeyProvider{Var: envVar}, nil
	default:
		return nil, fmt.Errorf("unknown key source %q", source)
	}
}

// Open builds a Box from the key supplied by p.
func Open(p KeyProvider) (*Box, error) {
	k, err := p.Key()
	if err != nil {
		return nil, err
	}
	return New(k)
}
