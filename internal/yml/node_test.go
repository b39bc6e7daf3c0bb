package yml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNode(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("Templates:\n  - id: a\n  - id: b\nname: x\n"), &doc))
	root := (*Node)(&doc).Root()
	assert.Equal(t, yaml.MappingNode, root.Kind)

	var keys []string
	require.NoError(t, root.Pairs(func(key string, node *Node) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"Templates", "name"}, keys)

	templates := root.Lookup("templates")
	require.NotNil(t, templates)
	var ids []string
	require.NoError(t, templates.Items(func(index int, node *Node) error {
		item := map[string]string{}
		if err := node.Decode(&item); err != nil {
			return err
		}
		ids = append(ids, item["id"])
		return nil
	}))
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Nil(t, root.Lookup("missing"))
	assert.Nil(t, templates.Lookup("id"))
}
