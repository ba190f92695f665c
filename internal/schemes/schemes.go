package schemes

import (
	"fmt"

	"github.com/isobit/seedog/internal"
	"github.com/isobit/seedog/internal/schemes/file"
	"github.com/isobit/seedog/internal/schemes/http"
	"github.com/isobit/seedog/internal/schemes/postgresql"
	"github.com/isobit/seedog/internal/schemes/websocket"
)

func init() {
	registerSchemes(
		file.Scheme,
		http.Scheme,
		postgresql.Scheme,
		websocket.Scheme,
	)
}

var Registry = map[string]*seedog.Scheme{}

func registerSchemes(schemes ...*seedog.Scheme) {
	for _, scheme := range schemes {
		for _, names := range [][]string{scheme.Names, scheme.HiddenNames} {
			for _, name := range names {
				if _, exists := Registry[name]; exists {
					panic(fmt.Sprintf("conflicting scheme name: %s", name))
				}
				Registry[name] = scheme
			}
		}
	}
}

func Lookup(urlScheme string) *seedog.Scheme {
	return Registry[urlScheme]
}
