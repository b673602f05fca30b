package repository

import "errors"

// Errores neutrales de almacenamiento, compartidos por todas las implementaciones.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
