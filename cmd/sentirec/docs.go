package main

// General API documentation for swaggo. Run `swag init -g cmd/sentirec/docs.go` to generate docs.
//
// @title           sentirec API
// @version         1.0
// @description     Sentiment prediction and product recommendation over HTTP.
//
// @contact.name   sentirec maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
