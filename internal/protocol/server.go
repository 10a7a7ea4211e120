package protocol

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lodestar-vc/lodestar/internal/auth"
	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/pack"
	"github.com/lodestar-vc/lodestar/internal/storage"
)

// RefStore abstraction to avoid a dependency on the repository package
type RefStore interface {
	GetHEAD() (string, error)
	GetCurrentCommit() (core.Hash, error)
	ListBranches() ([]string, error)
	GetRef(ref string) (core.Hash, error)
}

type Server struct {
	store    *storage.Store
	refs     RefStore
	verifier auth.Verifier
	mux      *http.ServeMux
}

// NewServer creates an HTTP server over a repository's store and refs. A
// nil verifier serves unauthenticated.
func NewServer(store *storage.Store, refs RefStore, verifier auth.Verifier) *Server {
	s := &Server{
		store:    store,
		refs:     refs,
		verifier: verifier,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("/info/refs", s.handleInfoRefs)
	s.mux.HandleFunc("/objects/", s.handleObject)
	s.mux.HandleFunc("/upload-pack", s.handleUploadPack)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.verifier != nil {
		if err := s.verifier.Verify(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}
	s.mux.ServeHTTP(w, r)
}

// handleInfoRefs advertises every ref of the served repository
// (GET /info/refs)
func (s *Server) handleInfoRefs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	refs := make(map[string]string)

	if _, err := s.refs.GetHEAD(); err == nil {
		if hash, err := s.refs.GetCurrentCommit(); err == nil {
			refs["HEAD"] = hash.String()
		}
	}

	branches, err := s.refs.ListBranches()
	if err == nil {
		for _, b := range branches {
			if hash, err := s.refs.GetRef("refs/heads/" + b); err == nil {
				refs["refs/heads/"+b] = hash.String()
			}
		}
	}

	w.Header().Set("Content-Type", jsonContentType)
	json.NewEncoder(w).Encode(refs)
}

// handleObject serves one object by hash (GET /objects/{hash})
func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hashStr := strings.TrimPrefix(r.URL.Path, "/objects/")
	if hashStr == "" {
		http.Error(w, "Missing hash", http.StatusBadRequest)
		return
	}

	hash, err := core.ParseHash(hashStr)
	if err != nil {
		http.Error(w, "Invalid hash: "+err.Error(), http.StatusBadRequest)
		return
	}

	obj, err := s.store.Get(hash)
	if err != nil {
		if err == core.ErrObjectNotFound {
			http.Error(w, "Object not found", http.StatusNotFound)
		} else {
			http.Error(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", jsonContentType)
	json.NewEncoder(w).Encode(struct {
		Type string `json:"type"`
		Data []byte `json:"data"`
		Hash string `json:"hash"`
	}{string(obj.Type), obj.Data, obj.Hash.String()})
}

// handleUploadPack answers a finished negotiation with the pack of objects
// the client is missing (POST /upload-pack)
func (s *Server) handleUploadPack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req uploadPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Wants) == 0 {
		http.Error(w, "Nothing wanted", http.StatusBadRequest)
		return
	}

	wants, err := parseHashes(req.Wants)
	if err != nil {
		http.Error(w, "Invalid want: "+err.Error(), http.StatusBadRequest)
		return
	}
	haves, err := parseHashes(req.Haves)
	if err != nil {
		http.Error(w, "Invalid have: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", packContentType)

	pw := pack.NewWriter(w)
	if err := s.writePack(pw, wants, haves); err != nil {
		// Headers are gone; closing mid-stream leaves the client with a
		// truncated pack it will reject on its own
		return
	}
	pw.Close()
}

// writePack walks the graph from the wanted tips, cutting at everything
// the client said it has. A commit the client has implies its whole
// history and trees, so traversal stops there.
func (s *Server) writePack(pw *pack.Writer, wants, haves []core.Hash) error {
	haveSet := make(map[core.Hash]bool)
	for _, h := range haves {
		haveSet[h] = true
	}

	visited := make(map[core.Hash]bool)
	queue := make([]core.Hash, len(wants))
	copy(queue, wants)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] || haveSet[current] {
			continue
		}
		visited[current] = true

		obj, err := s.store.Get(current)
		if err != nil {
			return err
		}

		if err := pw.WriteObject(obj); err != nil {
			return err
		}

		switch obj.Type {
		case core.ObjectTypeCommit:
			commit, err := core.DecodeCommit(obj.Data)
			if err != nil {
				return err
			}
			queue = append(queue, commit.Tree)
			queue = append(queue, commit.Parents...)

		case core.ObjectTypeTree:
			tree, err := core.DecodeTree(obj.Data)
			if err != nil {
				return err
			}
			for _, entry := range tree.Entries {
				queue = append(queue, entry.Hash)
			}

		case core.ObjectTypeBlob:
			// No children
		}
	}

	return nil
}

func parseHashes(in []string) ([]core.Hash, error) {
	out := make([]core.Hash, 0, len(in))
	for _, s := range in {
		hash, err := core.ParseHash(s)
		if err != nil {
			return nil, err
		}
		out = append(out, hash)
	}
	return out, nil
}
