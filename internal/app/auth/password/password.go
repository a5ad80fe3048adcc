package password

import (
	"github.com/alexedwards/argon2id"

	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher derives and verifies password digests with argon2id. The pepper is
// appended before hashing so a dumped table alone is not crackable offline.
type Hasher struct {
	pepper string
}

func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: pepper}
}

func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := argon2id.CreateHash(plain+h.pepper, params)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash password")
	}
	return digest, nil
}

func (h *Hasher) Verify(plain, digest string) bool {
	ok, err := argon2id.ComparePasswordAndHash(plain+h.pepper, digest)
	return err == nil && ok
}
