package object

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned when no object matches a hash or prefix.
var ErrNotFound = errors.New("object not found")

// ErrAmbiguousPrefix is returned when a prefix matches more than one object.
var ErrAmbiguousPrefix = errors.New("ambiguous object prefix")

// MinPrefix is the shortest hash abbreviation ResolvePrefix accepts.
const MinPrefix = 4

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Object files hold the
// zstd-compressed envelope "type len\0content".
type Store struct {
	fs billy.Filesystem
}

// NewStore creates a Store over a filesystem rooted at the repository
// directory. The objects/ subdirectory is created lazily on first write.
func NewStore(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// objectPath returns the path for a given hash, relative to the store root.
func (s *Store) objectPath(h Hash) string {
	return s.fs.Join("objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !ValidHash(h) {
		return false
	}
	_, err := s.fs.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Writes are atomic:
// data goes to a temp file which is then renamed into place. Writing an
// object that already exists is a no-op.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	if !ValidType(objType) {
		return "", fmt.Errorf("object write: unknown type %q", objType)
	}
	h := HashObject(objType, data)
	if s.Has(h) {
		return h, nil
	}

	compressed, err := compressZstd(makeEnvelope(objType, data))
	if err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}

	dir := s.fs.Join("objects", string(h[:2]))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := s.fs.TempFile(dir, ".tmp-")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.objectPath(h)); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
// A missing object satisfies errors.Is(err, ErrNotFound).
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !ValidHash(h) {
		return "", nil, fmt.Errorf("object read %q: %w", h, ErrNotFound)
	}
	compressed, err := util.ReadFile(s.fs, s.objectPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	raw, err := decompressZstd(compressed)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid format (no NUL)", h)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("object read %s: invalid header %q", h, header)
	}
	objType := ObjectType(parts[0])
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: invalid length %q: %w", h, parts[1], err)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d)", h, length, len(content))
	}

	return objType, content, nil
}

// ResolvePrefix expands an abbreviated hash to the unique full hash it
// prefixes. Zero matches satisfy errors.Is(err, ErrNotFound); more than one
// satisfies errors.Is(err, ErrAmbiguousPrefix). A full 64-character hash is
// accepted and checked for existence.
func (s *Store) ResolvePrefix(prefix string) (Hash, error) {
	if len(prefix) < MinPrefix || len(prefix) > 64 || !isHexString(prefix) {
		return "", fmt.Errorf("object prefix %q: %w", prefix, ErrNotFound)
	}
	if len(prefix) == 64 {
		h := Hash(prefix)
		if !s.Has(h) {
			return "", fmt.Errorf("object %s: %w", prefix, ErrNotFound)
		}
		return h, nil
	}

	fanout, rest := prefix[:2], prefix[2:]
	entries, err := s.fs.ReadDir(s.fs.Join("objects", fanout))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("object prefix %s: %w", prefix, ErrNotFound)
		}
		return "", fmt.Errorf("object prefix %s: %w", prefix, err)
	}

	var matches []Hash
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isHexComponent(name, 62) {
			continue
		}
		if strings.HasPrefix(name, rest) {
			matches = append(matches, Hash(fanout+name))
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("object prefix %s: %w", prefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("object prefix %s matches %d objects: %w", prefix, len(matches), ErrAmbiguousPrefix)
	}
}

// IsHexPrefix reports whether s could name an object abbreviation: lowercase
// hex, at least MinPrefix and at most a full hash long.
func IsHexPrefix(s string) bool {
	return len(s) >= MinPrefix && len(s) <= 64 && isHexString(s)
}

// Objects lists every object hash in the store, sorted.
func (s *Store) Objects() ([]Hash, error) {
	fanoutDirs, err := s.fs.ReadDir("objects")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read objects dir: %w", err)
	}

	hashes := make([]Hash, 0)
	for _, fanoutDir := range fanoutDirs {
		if !fanoutDir.IsDir() {
			continue
		}
		prefix := fanoutDir.Name()
		if !isHexComponent(prefix, 2) {
			continue
		}

		objectEntries, err := s.fs.ReadDir(s.fs.Join("objects", prefix))
		if err != nil {
			return nil, fmt.Errorf("read objects fanout %s: %w", prefix, err)
		}
		for _, objectEntry := range objectEntries {
			if objectEntry.IsDir() {
				continue
			}
			suffix := objectEntry.Name()
			if !isHexComponent(suffix, 62) {
				continue
			}
			hashes = append(hashes, Hash(prefix+suffix))
		}
	}

	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i] < hashes[j]
	})
	return hashes, nil
}

// VerifyObjects re-reads every object and checks its content against its
// hash. It returns the number of objects verified.
func (s *Store) VerifyObjects() (int, error) {
	hashes, err := s.Objects()
	if err != nil {
		return 0, err
	}
	for _, h := range hashes {
		objType, content, err := s.Read(h)
		if err != nil {
			return 0, fmt.Errorf("verify %s: %w", h, err)
		}
		if actual := HashObject(objType, content); actual != h {
			return 0, fmt.Errorf("verify %s: hash mismatch (computed %s)", h, actual)
		}
	}
	return len(hashes), nil
}

func makeEnvelope(objType ObjectType, data []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	out := make([]byte, 0, len(header)+len(data))
	out = append(out, header...)
	out = append(out, data...)
	return out
}

// compressZstd compresses data using zstd.
func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd-compressed data.
func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeBlob {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeBlob)
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeTree {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeTree)
	}
	return UnmarshalTree(data)
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeCommit {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeCommit)
	}
	return UnmarshalCommit(data)
}

// WriteTag serializes and stores a TagObj.
func (s *Store) WriteTag(t *TagObj) (Hash, error) {
	return s.Write(TypeTag, MarshalTag(t))
}

// ReadTag reads and deserializes a TagObj.
func (s *Store) ReadTag(h Hash) (*TagObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeTag {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeTag)
	}
	return UnmarshalTag(data)
}
