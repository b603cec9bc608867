package data

import (
	_ "embed"
)

// SeedFixtures are the development fixtures loaded by `migrate -seed`
//
//go:embed fixtures/seed.yaml
var SeedFixtures []byte
