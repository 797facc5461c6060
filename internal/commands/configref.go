package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"hotconsole/internal/shellcmd"
)

var configRefRE = regexp.MustCompile(`\$\{config:([\w.-]+)\}`)

// resolveConfig replaces ${config:key} references in s with string fields of
// the data document. An unset key is asked for once and saved. missing is a
// declined message when the user left a value empty.
func resolveConfig(ctx context.Context, deps Deps, s, message string) (out, missing string, err error) {
	refs := configRefRE.FindAllStringSubmatch(s, -1)
	if len(refs) == 0 {
		return s, "", nil
	}
	if deps.Store == nil {
		return "", "", errors.New("config references need a data document")
	}
	values := make(map[string]string, len(refs))
	for _, ref := range refs {
		key := ref[1]
		if _, ok := values[key]; ok {
			continue
		}
		prompt := message
		if prompt == "" {
			prompt = fmt.Sprintf("Parameter %s is not set in the config yet", key)
		}
		v, err := deps.Console.FromConfigOrAsk(ctx, deps.Store, key, prompt)
		if err != nil {
			return "", "", fmt.Errorf("config %s: %w", key, err)
		}
		if v == "" {
			return "", fmt.Sprintf("Parameter %s is not set", key), nil
		}
		values[key] = v
	}
	out = configRefRE.ReplaceAllStringFunc(s, func(m string) string {
		return values[configRefRE.FindStringSubmatch(m)[1]]
	})
	return out, "", nil
}

// resolveSpec resolves config references in every string of spec.
func resolveSpec(ctx context.Context, deps Deps, spec shellcmd.Spec, message string) (shellcmd.Spec, string, error) {
	var missing string
	var err error
	resolve := func(s string) string {
		if err != nil || missing != "" {
			return s
		}
		var r string
		r, missing, err = resolveConfig(ctx, deps, s, message)
		return r
	}
	out := spec
	out.Command = resolve(spec.Command)
	out.Dir = resolve(spec.Dir)
	out.Args = make([]string, len(spec.Args))
	for i, a := range spec.Args {
		out.Args[i] = resolve(a)
	}
	if len(spec.Env) > 0 {
		out.Env = make(map[string]string, len(spec.Env))
		for k, v := range spec.Env {
			out.Env[k] = resolve(v)
		}
	}
	return out, missing, err
}
