package seedog

import (
	"github.com/brianvoe/gofakeit/v7"
)

// Record is one synthetic user to register.
type Record struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Generator interface {
	Generate() Record
}

type GeneratorFunc func() Record

func (f GeneratorFunc) Generate() Record {
	return f()
}

const fakePasswordLength = 12

// FakeGenerator produces random records. It is not safe for concurrent use;
// the Seeder only calls it from the dispatch loop.
type FakeGenerator struct {
	faker *gofakeit.Faker
}

// NewFakeGenerator returns a generator seeded with seed, or with a random
// seed if seed is 0.
func NewFakeGenerator(seed uint64) *FakeGenerator {
	return &FakeGenerator{
		faker: gofakeit.New(seed),
	}
}

func (g *FakeGenerator) Generate() Record {
	return Record{
		Name:     g.faker.Name(),
		Email:    g.faker.Email(),
		Password: g.faker.Password(true, true, true, true, false, fakePasswordLength),
	}
}
