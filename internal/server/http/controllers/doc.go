// Package controllers holds the HTTP handlers behind the feedsync gateway:
// chain sync routes, admin routes and the health check.
package controllers
