package sandbox

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Prelude builds the Python header that binds collected data into the
// generated code's namespace: df/csv_data when CSV is present, plus every
// extracted parameter as a top-level variable. Imports are kept to what
// the tool protocol promises the model.
func Prelude(b Bindings) string {
	var sb strings.Builder

	sb.WriteString("import json, base64, io, sqlite3, urllib\n")
	if b.CSV != "" {
		sb.WriteString("import pandas as pd\n")
		sb.WriteString("import numpy as np\n")
		sb.WriteString("import matplotlib\n")
		sb.WriteString("matplotlib.use('Agg')\n")
		sb.WriteString("import matplotlib.pyplot as plt\n")
		fmt.Fprintf(&sb, "df = pd.read_csv(%q, header=None)\n", CSVName)
		fmt.Fprintf(&sb, "csv_data = open(%q).read()\n", CSVName)
	}

	// Deterministic ordering keeps generated scripts reproducible.
	keys := make([]string, 0, len(b.Params))
	for k := range b.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !validIdentifier(k) {
			continue
		}
		fmt.Fprintf(&sb, "%s = %s\n", k, pyLiteral(b.Params[k]))
	}

	sb.WriteString("\n")
	return sb.String()
}

func pyLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	default:
		return strconv.Quote(fmt.Sprintf("%v", x))
	}
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
