package evaluator

import (
	"context"
	"encoding/json"
)

// rBridge mirrors pythonBridge's JSON-lines protocol for Rscript. R and
// Python must be equivalent for plain arithmetic (spec.md §4.1) but may
// diverge on idiomatic calls (math.pi vs pi) -- that divergence is
// expected and lives entirely in the two bridge scripts, never in the
// template engine itself.
const rBridge = `
suppressMessages(library(jsonlite))
for (name in names(.fz_bindings)) {
  assign(name, .fz_bindings[[name]], envir = .GlobalEnv)
}
con <- file("stdin", "r")
repeat {
  line <- readLines(con, n = 1, warn = FALSE)
  if (length(line) == 0) break
  line <- trimws(line)
  if (nchar(line) == 0) next
  req <- fromJSON(line)
  result <- tryCatch({
    if (req$op == "exec") {
      eval(parse(text = req$code), envir = .GlobalEnv)
      ""
    } else {
      v <- eval(parse(text = req$code), envir = .GlobalEnv)
      paste(format(v), collapse = " ")
    }
  }, error = function(e) e)
  if (inherits(result, "error") || inherits(result, "simpleError") || inherits(result, "condition")) {
    resp <- list(ok = FALSE, error = conditionMessage(result))
  } else {
    resp <- list(ok = TRUE, value = result)
  }
  cat(toJSON(resp, auto_unbox = TRUE), "\n", sep = "")
  flush(stdout())
}
`

// RFactory drives an Rscript subprocess as the optional "r" interpreter.
type RFactory struct{}

func (RFactory) Open(ctx context.Context, bindings map[string]any) (Session, error) {
	bindingsJSON, err := json.Marshal(bindings)
	if err != nil {
		return nil, err
	}
	preamble := ".fz_bindings <- jsonlite::fromJSON('" + escapeRSingleQuoted(string(bindingsJSON)) + "')\n"
	return openProcSession(ctx, "Rscript", ".R", "suppressMessages(library(jsonlite))\n"+preamble+rBridge, "r")
}

func escapeRSingleQuoted(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
