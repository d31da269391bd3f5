package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditreport/internal/core"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAmountCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"amount", "14750000"}, "壹仟肆佰柒拾伍万元整\n"},
		{[]string{"amount", "1,234.56"}, "壹仟贰佰叁拾肆元伍角陆分\n"},
		{[]string{"amount", "--wan", "1550"}, "壹仟伍佰伍拾万元整\n"},
		{[]string{"amount", "0"}, core.ZeroYuan + "\n"},
	}
	for _, tt := range tests {
		out, err := runCmd(t, tt.args...)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, out, tt.args)
	}
}

func TestAmountCommandErrors(t *testing.T) {
	_, err := runCmd(t, "amount", "abc")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = runCmd(t, "amount", "--", "-5")
	assert.ErrorIs(t, err, core.ErrNegativeAmount)

	_, err = runCmd(t, "amount")
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SQLITE_DB_PATH", dir+"/db/test.db")
	t.Setenv("UPLOAD_DIR", dir+"/uploads")
	t.Setenv("TMP_DIR", dir+"/tmp")
	t.Setenv("LOG_LEVEL", "error")

	out, err := runCmd(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema version 2 (dirty=false)\n", out)
}
