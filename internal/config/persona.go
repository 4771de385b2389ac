package config

import _ "embed"

//go:embed persona.txt
var defaultPersona string
