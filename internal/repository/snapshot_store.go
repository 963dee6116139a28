package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tahayparker/vacansee-sub001/internal/model"
)

// SnapshotStore 周视图快照制品的持久存储接口
//
// 快照是引擎唯一持久发布的产物，形如扁平文件的版本化制品：
// 写入必须原子（临时文件 + rename），读取在无制品时返回 (nil, nil)。
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *model.WeeklySnapshot) error
	Load(ctx context.Context) (*model.WeeklySnapshot, error)
}

type fileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore 创建基于本地文件的快照存储
func NewFileSnapshotStore(path string) SnapshotStore {
	return &fileSnapshotStore{path: path}
}

func (s *fileSnapshotStore) Save(_ context.Context, snapshot *model.WeeklySnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建快照目录失败: %w", err)
	}

	// 先写临时文件再 rename，避免读到半截快照
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入快照失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换快照文件失败: %w", err)
	}
	return nil
}

func (s *fileSnapshotStore) Load(_ context.Context) (*model.WeeklySnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取快照文件失败: %w", err)
	}

	var snapshot model.WeeklySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("解析快照文件失败: %w", err)
	}
	return &snapshot, nil
}
