package addrbook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/mapping"

	"github.com/tranvictor/multisend/common"
)

// NamedAddress pairs an address with the human readable name it was saved
// under.
type NamedAddress struct {
	Address string `json:"address"`
	Desc    string `json:"desc"`
}

// NameDB is a persistent name to address database backed by a json file and
// a bleve full text index, so recipients can be referred to by name instead
// of pasting hex addresses around.
type NameDB struct {
	dataFile  string
	indexPath string

	index bleve.Index
	names map[string]string
}

func DefaultNameDBPaths() (dataFile, indexPath string) {
	dir := filepath.Join(common.GetHomeDir(), ".multisend")
	return filepath.Join(dir, "addresses.json"), filepath.Join(dir, "addresses.bleve")
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName

	defaultMapping := bleve.NewDocumentMapping()
	defaultMapping.AddFieldMappingsAt("desc", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", defaultMapping)
	indexMapping.DefaultAnalyzer = "en"
	return indexMapping
}

// NewNameDB opens (or creates) the database at the given paths. Both paths
// are injectable so tests can run against a temp dir.
func NewNameDB(dataFile, indexPath string) (*NameDB, error) {
	db := &NameDB{
		dataFile:  dataFile,
		indexPath: indexPath,
		names:     map[string]string{},
	}

	content, err := os.ReadFile(dataFile)
	if err == nil {
		if err := json.Unmarshal(content, &db.names); err != nil {
			return nil, fmt.Errorf("address db at %s is corrupted: %w", dataFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, err
		}
		if err := indexAll(index, db.names); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	db.index = index
	return db, nil
}

func indexAll(index bleve.Index, names map[string]string) error {
	batch := index.NewBatch()
	for addr, desc := range names {
		if err := batch.Index(addr, NamedAddress{Address: addr, Desc: desc}); err != nil {
			return err
		}
	}
	return index.Batch(batch)
}

func (db *NameDB) persist() error {
	if err := os.MkdirAll(filepath.Dir(db.dataFile), 0755); err != nil {
		return err
	}
	content, err := json.MarshalIndent(db.names, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(db.dataFile, content, 0644)
}

// Add stores a name for address and updates the index.
func (db *NameDB) Add(address, desc string) error {
	if !common.IsAddress(address) {
		return &ValidationError{Field: "address", Value: address, Reason: "not a valid hex address"}
	}
	key := common.NormalizeAddress(address)
	db.names[key] = desc
	if err := db.index.Index(key, NamedAddress{Address: key, Desc: desc}); err != nil {
		return err
	}
	return db.persist()
}

// All returns every saved entry.
func (db *NameDB) All() []NamedAddress {
	result := []NamedAddress{}
	for addr, desc := range db.names {
		result = append(result, NamedAddress{Address: addr, Desc: desc})
	}
	return result
}

// Search finds saved addresses whose name matches input, best hits first.
// A phrase match and a fuzzy match are combined so both "vault ops" and a
// one character typo still hit.
func (db *NameDB) Search(input string) []NamedAddress {
	matchQuery := bleve.NewMatchPhraseQuery(input)
	fuzzyQuery := bleve.NewFuzzyQuery(input)
	fuzzyQuery.Fuzziness = 1
	query := bleve.NewDisjunctionQuery(matchQuery, fuzzyQuery)
	request := bleve.NewSearchRequest(query)

	searchResults, err := db.index.Search(request)
	if err != nil {
		return []NamedAddress{}
	}
	results := []NamedAddress{}
	for _, hit := range searchResults.Hits {
		desc, ok := db.names[hit.ID]
		if !ok {
			continue
		}
		results = append(results, NamedAddress{Address: hit.ID, Desc: desc})
	}
	return results
}

// Resolve turns a user supplied hint into an address. A literal hex address
// passes through normalized, anything else is looked up by name and must
// resolve to exactly one best hit.
func (db *NameDB) Resolve(hint string) (string, error) {
	if common.IsAddress(hint) {
		return common.NormalizeAddress(hint), nil
	}
	hits := db.Search(hint)
	if len(hits) == 0 {
		return "", fmt.Errorf("no saved address matches %q", hint)
	}
	return hits[0].Address, nil
}

// Close releases the underlying index.
func (db *NameDB) Close() error {
	return db.index.Close()
}
