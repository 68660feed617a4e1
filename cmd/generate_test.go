package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "labtest.dev/pkg/labtest/internal/model"
)

func TestGenerateCmd_DefaultArgs(t *testing.T) {
	fake := withFakeWorkflow(t)

	cmd := baseRootCmd()
	cmd.AddCommand(newGenerateCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"generate"})
	require.NoError(t, cmd.Execute())

	require.Len(t, fake.generateArgs, 1)
	args := fake.generateArgs[0]

	assert.Equal(t, m.Path("."), args.Source)
	assert.Empty(t, args.OutputDir)
	assert.Equal(t, m.Path(defaultReportsDir), args.Reports)
	assert.False(t, args.Force)
	assert.False(t, args.Watch)
}

func TestGenerateCmd_ForceAndWatch(t *testing.T) {
	fake := withFakeWorkflow(t)

	cmd := baseRootCmd()
	cmd.AddCommand(newGenerateCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{
		"generate", "./scripts",
		"--force", "--watch",
		"--poll-interval", "2s",
		"--tests-dir", "./tests",
	})
	require.NoError(t, cmd.Execute())

	require.Len(t, fake.generateArgs, 1)
	args := fake.generateArgs[0]

	assert.Equal(t, m.Path("./scripts"), args.Source)
	assert.Equal(t, m.Path("./tests"), args.OutputDir)
	assert.True(t, args.Force)
	assert.True(t, args.Watch)
	assert.Equal(t, 2*time.Second, args.PollInterval)
}

func TestListCmd_PassesRoot(t *testing.T) {
	fake := withFakeWorkflow(t)

	cmd := baseRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"list", "./scripts"})
	require.NoError(t, cmd.Execute())

	require.Len(t, fake.listArgs, 1)
	assert.Equal(t, m.Path("./scripts"), fake.listArgs[0].Root)
}

func TestViewCmd_UsesOutputFlag(t *testing.T) {
	fake := withFakeWorkflow(t)

	root := baseRootCmd()
	configureRootFlags(root)

	// Re-point the shared viper binding back at the package root's flag so
	// the overridden output value does not leak into other tests.
	t.Cleanup(func() {
		bindFlagToConfig(rootCmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)
	})

	root.AddCommand(newViewCmd())
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	root.SetArgs([]string{"view", "--output", "custom-reports"})
	require.NoError(t, root.Execute())

	require.Len(t, fake.viewArgs, 1)
	assert.Equal(t, m.Path("custom-reports"), fake.viewArgs[0].Reports)
}
