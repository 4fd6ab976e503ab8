// Package cli содержит команды терминального инструмента reqchain.
//
// Команды работают с локальным store напрямую (без сервера):
//
//	reqchain chain  create|list|show|delete
//	reqchain step   add|list|show|delete
//	reqchain ctx    set|get|unset|list
//	reqchain run    step|chain
//
// Конструкторы команд принимают depsFn — ленивое открытие store и
// dispatcher'а, чтобы help и парсинг флагов не трогали БД.
package cli
