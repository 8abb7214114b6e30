package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	got := Parse("0:Microsoft Zira|1:Microsoft David")
	assert.Equal(t, List{
		{ID: "0", Name: "Microsoft Zira"},
		{ID: "1", Name: "Microsoft David"},
	}, got)
}

func TestParse_Empty(t *testing.T) {
	assert.Nil(t, Parse(""))
}

func TestParse_NameContainsColon(t *testing.T) {
	got := Parse("0:Name: With Colon")
	assert.Equal(t, "Name: With Colon", got[0].Name)
}

func TestIndexOf(t *testing.T) {
	l := Parse("0:Alpha|1:Beta")
	idx, ok := l.IndexOf("1")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = l.IndexOf("missing")
	assert.False(t, ok)
}

// fakeReader is a minimal Reader test double used to exercise FilterValid
// without a platform registry.
type fakeReader struct {
	valid map[string]bool
	errs  map[string]error
}

func (f fakeReader) Valid(ctx context.Context, id string) (bool, error) {
	if err, ok := f.errs[id]; ok {
		return false, err
	}
	return f.valid[id], nil
}

func TestFilterValid(t *testing.T) {
	voices := Parse("0:Alpha|1:Beta|2:Gamma")
	reader := fakeReader{
		valid: map[string]bool{"0": true, "1": false},
		errs:  map[string]error{"2": errors.New("registry unavailable")},
	}

	var loggedErrors []string
	got := FilterValid(context.Background(), voices, reader, func(id string, err error) {
		loggedErrors = append(loggedErrors, id)
	})

	assert.Equal(t, List{{ID: "0", Name: "Alpha"}}, got)
	assert.Equal(t, []string{"2"}, loggedErrors)
}
