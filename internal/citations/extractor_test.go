package citations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reslab/paperlens/internal/domain"
)

func TestExtract_DOI(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"plain", "see 10.1038/nature14539 for details", "10.1038/nature14539"},
		{"trailing period", "as shown in 10.1145/3292500.3330701.", "10.1145/3292500.3330701"},
		{"trailing bracket", "[doi:10.1016/j.cell.2020.01.021]", "10.1016/j.cell.2020.01.021"},
		{"trailing semicolon", "10.1109/CVPR.2016.90; and others", "10.1109/CVPR.2016.90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := Extract(tt.text)
			require.Len(t, ids, 1)
			assert.Equal(t, domain.IdentifierTypeDOI, ids[0].Type)
			assert.Equal(t, tt.expected, ids[0].Value)
		})
	}
}

func TestExtract_ArXiv(t *testing.T) {
	ids := Extract("introduced in arXiv:1706.03762 and refined in arxiv:2005.14165v4")
	require.Len(t, ids, 2)
	assert.Equal(t, domain.IdentifierTypeArXiv, ids[0].Type)
	assert.Equal(t, "1706.03762", ids[0].Value)
	assert.Equal(t, "2005.14165v4", ids[1].Value)
}

func TestExtract_PMIDAndPMC(t *testing.T) {
	ids := Extract("reported earlier (PMID: 31110280) and archived as PMC6520222")
	require.Len(t, ids, 2)
	assert.Equal(t, domain.IdentifierTypePMID, ids[0].Type)
	assert.Equal(t, "31110280", ids[0].Value)
	assert.Equal(t, domain.IdentifierTypePMC, ids[1].Type)
	assert.Equal(t, "PMC6520222", ids[1].Value)
}

func TestExtract_DedupKeepsFirstSeenOrder(t *testing.T) {
	text := "arXiv:1706.03762 then 10.1038/nature14539 then arXiv:1706.03762 again, " +
		"10.1038/NATURE14539 in caps, and finally arXiv:1810.04805"

	ids := Extract(text)
	require.Len(t, ids, 3)
	assert.Equal(t, "1706.03762", ids[0].Value)
	assert.Equal(t, "10.1038/nature14539", ids[1].Value)
	assert.Equal(t, "1810.04805", ids[2].Value)
}

func TestExtract_OrderIsByPositionAcrossTypes(t *testing.T) {
	text := "PMID: 12345 before 10.1000/xyz before arXiv:2101.00001"

	ids := Extract(text)
	require.Len(t, ids, 3)
	assert.Equal(t, domain.IdentifierTypePMID, ids[0].Type)
	assert.Equal(t, domain.IdentifierTypeDOI, ids[1].Type)
	assert.Equal(t, domain.IdentifierTypeArXiv, ids[2].Type)
}

func TestExtract_NoCitations(t *testing.T) {
	assert.Nil(t, Extract("this text cites nothing at all"))
	assert.Nil(t, Extract(""))
}

func TestExtract_VersionedArXivIsDistinct(t *testing.T) {
	ids := Extract("arXiv:1706.03762 and arXiv:1706.03762v5")
	require.Len(t, ids, 2)
}
