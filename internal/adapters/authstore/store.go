package authstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zapcast/internal/core/session"
	"zapcast/platform/logger"
)

const (
	dirPrefix    = "session_"
	metadataFile = "session_metadata.json"
)

// Metadata metadados gravados junto ao material de autenticação. Os blobs de
// credencial sozinhos não identificam o usuário dono; sem este arquivo a
// restauração pós-restart não conseguiria reassociar sessões a usuários.
type Metadata struct {
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store implementa session.AuthStore sobre o filesystem: um diretório por
// sessão sob um diretório raiz, nomeado deterministicamente pelo id.
type Store struct {
	root   string
	logger *logger.Logger
}

// New cria o store e garante que o diretório raiz existe
func New(root string, appLogger *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create auth root directory: %w", err)
	}

	return &Store{
		root:   root,
		logger: appLogger.WithModule("authstore"),
	}, nil
}

// Create cria o diretório da sessão e grava os metadados. Idempotente para o
// mesmo dono: metadados existentes não são sobrescritos. Um diretório já
// pertencente a outro usuário nunca é entregue — o registro em memória não
// cobre sessões de execuções anteriores, então a fronteira de autorização
// também vale aqui.
func (s *Store) Create(sessionID, ownerID string) (string, error) {
	path := s.pathFor(sessionID)

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}

	if meta, err := s.readMetadata(path); err == nil {
		if meta.UserID != ownerID {
			return "", fmt.Errorf("auth material for session %s: %w", sessionID, session.ErrNotSessionOwner)
		}
		return path, nil
	}

	metaPath := filepath.Join(path, metadataFile)

	meta := Metadata{
		UserID:    ownerID,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session metadata: %w", err)
	}

	if err := os.WriteFile(metaPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write session metadata: %w", err)
	}

	return path, nil
}

// ListExisting enumera diretórios de sessão persistidos. Entradas com
// metadados ausentes ou corrompidos são puladas e logadas, nunca fatais.
func (s *Store) ListExisting() ([]session.StoredSession, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read auth root directory: %w", err)
	}

	var stored []session.StoredSession
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}

		path := filepath.Join(s.root, entry.Name())
		meta, err := s.readMetadata(path)
		if err != nil {
			s.logger.WarnWithFields("Skipping session directory with bad metadata", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}

		stored = append(stored, session.StoredSession{
			SessionID: meta.SessionID,
			OwnerID:   meta.UserID,
			Path:      path,
		})
	}

	return stored, nil
}

// Delete remove recursivamente o diretório da sessão. Best-effort: falha é
// logada e engolida, pois deleção é limpeza.
func (s *Store) Delete(path string) {
	if path == "" || !s.within(path) {
		s.logger.WarnWithFields("Refusing to delete path outside auth root", map[string]interface{}{
			"path": path,
		})
		return
	}

	if err := os.RemoveAll(path); err != nil {
		s.logger.WarnWithFields("Failed to delete auth material", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// WipeOwner remove todo material de autenticação pertencente a um usuário
func (s *Store) WipeOwner(ownerID string) error {
	stored, err := s.ListExisting()
	if err != nil {
		return err
	}

	for _, entry := range stored {
		if entry.OwnerID == ownerID {
			s.Delete(entry.Path)
		}
	}

	return nil
}

// pathFor retorna o diretório determinístico de uma sessão
func (s *Store) pathFor(sessionID string) string {
	return filepath.Join(s.root, dirPrefix+sessionID)
}

func (s *Store) readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(path, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	if meta.SessionID == "" || meta.UserID == "" {
		return nil, fmt.Errorf("metadata missing sessionId or userId")
	}

	return &meta, nil
}

func (s *Store) within(path string) bool {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return absPath != absRoot && strings.HasPrefix(absPath, absRoot+string(filepath.Separator))
}
