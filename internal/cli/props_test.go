package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/query"
	"github.com/aidanlsb/cmisq/internal/repository"
)

func TestParsePropertyFlags(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		unset   []string
		want    map[string][]string
		wantErr bool
	}{
		{
			name:  "single values",
			pairs: []string{"dc:title=hello", "my:integer=3"},
			want:  map[string][]string{"dc:title": {"hello"}, "my:integer": {"3"}},
		},
		{
			name:  "repeated name collects values",
			pairs: []string{"dc:subjects=a", "dc:subjects=b"},
			want:  map[string][]string{"dc:subjects": {"a", "b"}},
		},
		{
			name:  "value may contain =",
			pairs: []string{"dc:description=a=b"},
			want:  map[string][]string{"dc:description": {"a=b"}},
		},
		{
			name:  "empty value is kept",
			pairs: []string{"dc:title="},
			want:  map[string][]string{"dc:title": {""}},
		},
		{
			name:  "unset maps to no values",
			unset: []string{"dc:title"},
			want:  map[string][]string{"dc:title": nil},
		},
		{name: "missing =", pairs: []string{"dc:title"}, wantErr: true},
		{name: "missing name", pairs: []string{"=x"}, wantErr: true},
		{name: "set and unset", pairs: []string{"dc:title=x"}, unset: []string{"dc:title"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePropertyFlags(tt.pairs, tt.unset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&query.Error{Kind: query.KindSyntax, Pos: 3, Msg: "x"}, ErrQueryInvalid},
		{&query.Error{Kind: query.KindUnsupported, Pos: -1, Msg: "x"}, ErrQueryUnsupported},
		{fmt.Errorf("wrapped: %w", &query.Error{Kind: query.KindInvalidLiteral, Pos: 0}), ErrInvalidLiteral},
		{fmt.Errorf("%w: x", repository.ErrObjectNotFound), ErrObjectNotFound},
		{fmt.Errorf("%w: x", repository.ErrNameConflict), ErrNameConflict},
		{fmt.Errorf("%w: %w", repository.ErrInvalidArgument, model.ErrUnknownType), ErrTypeNotFound},
		{fmt.Errorf("%w: %w", repository.ErrInvalidArgument, model.ErrUnknownProperty), ErrPropertyNotFound},
		{fmt.Errorf("%w: x", repository.ErrInvalidArgument), ErrInvalidInput},
		{errors.New("boom"), ErrInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorCode(tt.err), tt.err.Error())
	}
}
