package engine

import "errors"

// Ошибки компиляции шаблонов.
var (
	// ErrTemplateParse — некорректное шаблонное выражение
	// (незакрытый маркер или недопустимое имя переменной).
	ErrTemplateParse = errors.New("template parse failed")

	// ErrTemplateRender — значение переменной не удалось
	// отрендерить в строку.
	ErrTemplateRender = errors.New("template render failed")
)
