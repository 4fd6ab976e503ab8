package repo

import "errors"

// Ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName — chain с таким именем уже существует.
	ErrDuplicateName = errors.New("name already exists")
)
