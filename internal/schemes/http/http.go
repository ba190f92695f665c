package http

import (
	"github.com/isobit/seedog/internal"
)

var Scheme = &seedog.Scheme{
	Names:       []string{"http", "https"},
	HiddenNames: []string{"http+graphql", "https+graphql"},

	Dial: Dial,

	Description: `
Dial sends each registration mutation as a JSON POST request to the endpoint URL.

Examples:
	seedog -e 'http://127.0.0.1:8080'
	seedog -e 'https://api.example.net/graphql' -o 'header.Authorization=Bearer xyz'
	`,
	DialOptionHelp: dialOptionHelp,
}
