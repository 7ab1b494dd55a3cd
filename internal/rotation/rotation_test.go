package rotation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/simfell/internal/rotation"
)

func TestParseName(t *testing.T) {
	cat, id, err := rotation.ParseName("Spell/Frost_Bolt")
	require.NoError(t, err)
	assert.Equal(t, "spell", cat)
	assert.Equal(t, "frost_bolt", id)

	for _, bad := range []string{"", "frost_bolt", "/x", "spell/", "a/b/c"} {
		_, _, err := rotation.ParseName(bad)
		assert.Error(t, err, "name %q", bad)
	}
}

func TestAction_Accessors(t *testing.T) {
	a := rotation.Action{Name: "spell/ice_comet"}
	assert.Equal(t, "ice_comet", a.AbilityID())
	assert.Equal(t, "", rotation.Action{Name: "broken"}.AbilityID())
}

func TestList_ValidateCollectsAll(t *testing.T) {
	err := rotation.List{{Name: "x"}, {Name: "spell/ok"}, {Name: "y"}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action 0")
	assert.Contains(t, err.Error(), "action 2")
}

func TestAlways(t *testing.T) {
	assert.True(t, rotation.Always.Evaluate([]string{"false"}, nil))
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFile_ResolvesImportsDepthFirst(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "common/cooldowns.yaml", "actions:\n  - name: spell/ice_blitz\n")
	write(t, dir, "opener.yaml", "imports: [common/cooldowns.yaml]\nactions:\n  - name: spell/bursting_ice\n")
	main := write(t, dir, "main.yaml", `
name: rime
imports: [opener.yaml]
actions:
  - name: spell/glacial_blast
    conditions: ["resource('winter_orbs') >= 2"]
  - name: spell/frost_bolt
`)
	f, err := rotation.LoadFile(main)
	require.NoError(t, err)
	var names []string
	for _, a := range f.Actions {
		names = append(names, a.AbilityID())
	}
	assert.Equal(t, []string{"ice_blitz", "bursting_ice", "glacial_blast", "frost_bolt"}, names)
	assert.Equal(t, []string{"resource('winter_orbs') >= 2"}, f.Actions[2].Conditions)
}

func TestLoadFile_DiamondImportIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "shared.yaml", "actions:\n  - name: spell/frost_bolt\n")
	write(t, dir, "a.yaml", "imports: [shared.yaml]\n")
	write(t, dir, "b.yaml", "imports: [shared.yaml]\n")
	main := write(t, dir, "main.yaml", "imports: [a.yaml, b.yaml]\n")
	f, err := rotation.LoadFile(main)
	require.NoError(t, err)
	assert.Len(t, f.Actions, 2)
}

func TestLoadFile_RejectsCycle(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.yaml", "imports: [b.yaml]\n")
	write(t, dir, "b.yaml", "imports: [a.yaml]\n")
	_, err := rotation.LoadFile(filepath.Join(dir, "a.yaml"))
	assert.ErrorContains(t, err, "cycle")
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := rotation.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := write(t, dir, "bad.yaml", "actions:\n  - name: frost_bolt\n")
	_, err = rotation.LoadFile(bad)
	assert.ErrorContains(t, err, "category/ability")

	unknown := write(t, dir, "unknown.yaml", "actions: []\npriority: 1\n")
	_, err = rotation.LoadFile(unknown)
	assert.Error(t, err)
}

func TestPropertyParseName_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cat := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "category")
		id := rapid.StringMatching(`[a-z_]{1,16}`).Draw(rt, "ability")
		gotCat, gotID, err := rotation.ParseName(cat + "/" + id)
		require.NoError(rt, err)
		assert.Equal(rt, cat, gotCat)
		assert.Equal(rt, id, gotID)
	})
}
