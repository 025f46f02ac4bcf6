package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmynk/bookkeeper/internal/service"
)

var errNotFound = errors.New("not found")

// entityCommands adapts one record type's handlers to raw command arguments.
type entityCommands struct {
	add    func(ctx context.Context, args []string) (int64, error)
	get    func(ctx context.Context, args []string) (string, error)
	list   func(ctx context.Context, args []string) ([]string, error)
	update func(ctx context.Context, args []string) error
	delete func(ctx context.Context, args []string) error
}

func bind[T any](
	h service.EntityHandlers[T],
	parse func(args ...string) (T, error),
	key func(*T) *int64,
	render func(T) string,
) entityCommands {
	return entityCommands{
		add: func(ctx context.Context, args []string) (int64, error) {
			rec, err := parse(args...)
			if err != nil {
				return 0, err
			}
			return h.Create(ctx, &rec)
		},
		get: func(ctx context.Context, args []string) (string, error) {
			pk, err := parseKey(args)
			if err != nil {
				return "", err
			}
			rec, err := h.Get(ctx, pk)
			if err != nil {
				return "", err
			}
			if rec == nil {
				return "", errNotFound
			}
			return render(*rec), nil
		},
		list: func(ctx context.Context, args []string) ([]string, error) {
			filter, err := parseFilter(args)
			if err != nil {
				return nil, err
			}
			recs, err := h.List(ctx, filter)
			if err != nil {
				return nil, err
			}
			lines := make([]string, len(recs))
			for i, rec := range recs {
				lines[i] = render(rec)
			}
			return lines, nil
		},
		update: func(ctx context.Context, args []string) error {
			pk, err := parseKey(args)
			if err != nil {
				return err
			}
			if len(args) < 2 {
				return fmt.Errorf("missing field values")
			}
			rec, err := parse(args[1:]...)
			if err != nil {
				return err
			}
			*key(&rec) = pk
			return h.Update(ctx, &rec)
		},
		delete: func(ctx context.Context, args []string) error {
			pk, err := parseKey(args)
			if err != nil {
				return err
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected arguments after key")
			}
			return h.Delete(ctx, pk)
		},
	}
}

func parseKey(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing key")
	}
	pk, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || pk <= 0 {
		return 0, fmt.Errorf("invalid key %q", args[0])
	}
	return pk, nil
}

// parseFilter accepts "field=value" tokens and "field value" pairs, mixed.
func parseFilter(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	filter := make(map[string]string)
	for i := 0; i < len(args); i++ {
		if name, value, ok := strings.Cut(args[i], "="); ok {
			if name == "" {
				return nil, fmt.Errorf("empty field name in %q", args[i])
			}
			filter[name] = value
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("field %s has no value", args[i])
		}
		filter[args[i]] = args[i+1]
		i++
	}
	return filter, nil
}
