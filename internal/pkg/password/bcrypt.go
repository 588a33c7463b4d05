package password

import (
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes é o limite de entrada do bcrypt; bytes além dele são ignorados.
const maxPasswordBytes = 72

// BcryptHasher implementa domain.PasswordHasher usando bcrypt.
// Cada chamada a Hash gera um salt novo, embutido no próprio hash.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cria o hasher; custos fora do intervalo aceito pelo bcrypt usam o padrão.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost devolve o custo efetivamente usado.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Hash gera o hash bcrypt da senha em texto puro.
// Senhas com mais de 72 bytes são truncadas, tanto aqui quanto em Verify.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara a senha em texto puro com o hash armazenado.
// Hash malformado ou senha errada resultam em false, nunca em erro.
func (h *BcryptHasher) Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), truncate(plain)) == nil
}
