package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           whisperd API
// @version         1.0
// @description     HTTP API for GPU-aware transcription job scheduling.
//
// @contact.name   whisperd maintainers
// @contact.url    https://github.com/your-org/whisperd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
