package session

import (
	"errors"
)

var (
	ErrNotFound = errors.New("активная сессия не найдена")
	ErrExpired  = errors.New("сессия устарела")
)
