package repositorycache

import (
	"reflect"
	"testing"
)

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"Order":                 "order",
		"OrderLine":             "order_line",
		"HTTPRequest":           "http_request",
		"UserID":                "user_id",
		"Model2":                "model_2",
		"*testsupport.Customer": "testsupport_customer",
		"Page[main.Order]":      "page_main_order",
		"already_snake":         "already_snake",
		"":                      "",
	}

	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}

type localName struct{}

func TestNamespaceOf(t *testing.T) {
	assert := func(got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("namespaceOf() = %q, want %q", got, want)
		}
	}

	assert(namespaceOf(reflect.TypeFor[localName]()), "local_name@github.com/goliatone/go-modelstore/repositorycache.localName")
	assert(namespaceOf(reflect.TypeFor[int]()), "int@int")
	assert(namespaceOf(reflect.TypeFor[[]string]()), "string@[]string")
}
