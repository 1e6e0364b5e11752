// Package smoke выполняет сценарий проверки REST API AI Hub.
//
// Сценарий (YAML) описывает учётные данные и тела запросов. Runner строит
// из него упорядоченный план шагов: health, регистрация или вход, создание
// промптов, список, векторное хранилище с эмбеддингом, интроспекция токена,
// негативные проверки и необязательная очистка. Фатальным считается только
// провал health. Провал auth пропускает шаги, которым нужен токен.
package smoke
