// Package browser содержит контракт браузерного драйвера для
// OAuth authorization flow и его chromedp реализацию.
//
// Driver создаёт Session; Session умеет пять операций:
// создание (NewSession), Navigate, Title, WaitTitle (опрос заголовка
// с таймаутом) и Close. Flow в executor работает только с этим
// контрактом — в тестах драйвер подменяется фейком.
package browser
