// Package hashing хранит пароли покупателей в bcrypt.
package hashing

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes: bcrypt смотрит только на первые 72 байта, длиннее
// не принимаем, иначе пароли с общим префиксом дают один хеш.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Passwords хеширует с заданной стоимостью и подсказывает, какие хеши
// пора пересчитать после её повышения.
type Passwords struct {
	cost int
}

// NewPasswords: 0 — bcrypt.DefaultCost, остальное прижимается к [MinCost, MaxCost].
func NewPasswords(cost int) *Passwords {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Passwords{cost: cost}
}

func (p *Passwords) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (p *Passwords) Compare(hash, password string) bool {
	if len(password) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash — хеш сделан с меньшей стоимостью, чем текущая (или вообще не bcrypt).
func (p *Passwords) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < p.cost
}
