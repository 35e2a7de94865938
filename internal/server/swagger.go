package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title primeseek API
// @version 0.1
// @description Interactive documentation for the primeseek session API surface.
// @contact.name primeseek Maintainers
// @contact.url https://github.com/uorlab/primeseek
// @BasePath /
