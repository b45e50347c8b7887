// Package memory implementa los repositorios en mapas protegidos por
// mutex. Se usa en desarrollo y en los tests de integración; el contrato
// es el mismo que el de postgres.
package memory

import "errors"

var ErrNotFound = errors.New("memory: not found")
