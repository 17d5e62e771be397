package cli

import (
	"bytes"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"blizzard-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	// Point at a file that does not exist so a developer's .env never leaks into tests.
	root.SetArgs(append([]string{"--env-file=" + filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRootCmdHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"configs", "endpoints", "call", "auth-url"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestConfigsCmd(t *testing.T) {
	out, err := runRoot(t, "configs")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "wow_game_data")
	assert.Contains(t, lines, "hs_game_data")
	assert.Len(t, lines, 7)
}

func TestEndpointsCmd(t *testing.T) {
	out, err := runRoot(t, "endpoints", "wow", "game_data")
	require.NoError(t, err)
	assert.Contains(t, out, "get_achievement(achievement_id, region=None, locale=None, access_token=None, is_classic=False)")
	assert.NotContains(t, out, "get_achievement_async")

	out, err = runRoot(t, "endpoints", "--async", "wow", "game_data")
	require.NoError(t, err)
	assert.Contains(t, out, "get_achievement_async(achievement_id,")

	_, err = runRoot(t, "endpoints", "wow", "pets")
	assert.Error(t, err)
}

func TestCallCmd(t *testing.T) {
	bn := testutil.NewBattleNet(t)
	bn.JSON("/data/wow/achievement/6", http.StatusOK, testutil.Achievement())
	t.Setenv("BLIZZARD_CLIENT_ID", "cli-id")
	t.Setenv("BLIZZARD_CLIENT_SECRET", "cli-secret")

	out, err := runRoot(t, "call", "--base-url", bn.URL(), "--token-url", bn.TokenURL(), "--compact",
		"wow", "game_data", "get_achievement", "achievement_id=6", "region=eu")
	require.NoError(t, err)
	assert.Contains(t, out, `"id":6`)
	assert.Equal(t, "static-eu", bn.LastRequest().URL.Query().Get("namespace"))
}

func TestCallCmd_RequiresCredentials(t *testing.T) {
	t.Setenv("BLIZZARD_CLIENT_ID", "")
	t.Setenv("BLIZZARD_CLIENT_SECRET", "")

	_, err := runRoot(t, "call", "wow", "game_data", "get_achievement", "achievement_id=6")
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"achievement_id=6", "tag=a", "tag=b", "tag=c", "name.en_US=Chair=Table"})
	require.NoError(t, err)
	assert.Equal(t, "6", params["achievement_id"])
	assert.Equal(t, []interface{}{"a", "b", "c"}, params["tag"])
	assert.Equal(t, "Chair=Table", params["name.en_US"])

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}

func TestAuthURLCmd(t *testing.T) {
	t.Setenv("BLIZZARD_CLIENT_ID", "from-env")
	t.Setenv("BLIZZARD_REGION", "")

	out, err := runRoot(t, "auth-url", "--region", "kr", "--state", "s1")
	require.NoError(t, err)

	u, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "kr.battle.net", u.Host)
	assert.Equal(t, "from-env", u.Query().Get("client_id"))
	assert.Equal(t, "s1", u.Query().Get("state"))
	assert.Equal(t, "wow.profile", u.Query().Get("scope"))

	t.Setenv("BLIZZARD_CLIENT_ID", "")
	_, err = runRoot(t, "auth-url")
	assert.Error(t, err)
}
