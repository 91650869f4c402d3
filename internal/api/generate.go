// Package api contains the HTTP contract generated from api/openapi.yaml.
package api

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen -generate types,chi-server -package api -o api.gen.go ../../api/openapi.yaml
