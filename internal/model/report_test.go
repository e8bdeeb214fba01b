package model_test

import (
	"testing"

	"github.com/CZERTAINLY/parallel-lint/internal/model"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	var r model.Report
	require.True(t, r.Success())

	r.Add(model.Result{Path: "a.php", Class: model.ClassOK})
	require.True(t, r.Success())

	r.Add(model.Result{Path: "b.php", Class: model.ClassSyntaxError, Message: "unexpected '}'"})
	r.Add(model.Result{Path: "c.php", Class: model.ClassProcessError, ExitCode: 139, Message: "signal: segmentation fault"})

	require.False(t, r.Success())
	require.Equal(t, 3, r.Checked)
	require.Equal(t, 2, r.Errors)
	require.Equal(t, 1, r.SyntaxErrors)
	require.Equal(t, 1, r.ProcessErrors)
	require.Equal(t, []model.Failure{
		{Path: "b.php", Class: model.ClassSyntaxError, Message: "unexpected '}'"},
		{Path: "c.php", Class: model.ClassProcessError, Message: "signal: segmentation fault"},
	}, r.Failures)
}

func TestResultErr(t *testing.T) {
	require.NoError(t, model.Result{Class: model.ClassOK}.Err())

	var syntaxErr *model.SyntaxError
	err := model.Result{Path: "a.php", Class: model.ClassSyntaxError, Message: "boom"}.Err()
	require.ErrorAs(t, err, &syntaxErr)
	require.EqualError(t, err, "a.php: boom")

	var procErr *model.ProcessError
	err = model.Result{Path: "a.php", Class: model.ClassProcessError, ExitCode: 3}.Err()
	require.ErrorAs(t, err, &procErr)
	require.Equal(t, 3, procErr.ExitCode)
}

func TestIsFatal(t *testing.T) {
	require.True(t, model.IsFatal(&model.PathError{Path: "nope"}))
	require.True(t, model.IsFatal(&model.ArgumentError{Arg: "-x"}))
	require.True(t, model.IsFatal(&model.CheckerInvocationError{Executable: "php"}))
	require.False(t, model.IsFatal(&model.SyntaxError{Path: "a.php"}))
	require.False(t, model.IsFatal(nil))
}
