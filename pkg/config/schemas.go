package config

// workspaceSchema constrains oxbuild.cue documents. Unknown fields are
// rejected by the closed struct.
const workspaceSchema = `
close({
	name:           string & !=""
	build_path?:    string
	target_triple?: string
	release?:       bool
	opt_level?:     "0" | "1" | "2" | "3" | "s" | "z"
	history_path?:  string

	policy?: close({
		enabled: bool
		paths?: [...string]
	})

	telemetry?: close({
		metrics_listen?: string
		trace_exporter?: "none" | "stdout" | "otlp"
		trace_endpoint?: string
	})
})
`
