package extract

import (
	"io"
	"os"
	"path/filepath"
)

type moduleMigrator struct {
	initialBasePath string
	finalBasePath   string
}

func (m *moduleMigrator) copyFile(fileName string) error {
	iPath := filepath.Join(m.initialBasePath, fileName)
	file, err := os.Open(iPath)
	if err != nil {
		return err
	}
	defer file.Close()
	buf, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	fPath := filepath.Join(m.finalBasePath, fileName)
	if err := os.MkdirAll(filepath.Dir(fPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fPath, buf, 0644)
}

// migrateModule copies a module from its install source into the module
// store under its id, then reopens it from there. A half-copied target is
// removed on any failure. An empty hash means a new install and gets a
// fresh id.
func migrateModule(m *Module, hash, path string, cookies CookieSource) error {
	if hash == "" {
		hash = generateHash(DEF_MODULE_HASH)
	}

	migrator := moduleMigrator{
		initialBasePath: m.modulePath,
		finalBasePath:   filepath.Join(path, hash),
	}

	if err := os.MkdirAll(migrator.finalBasePath, 0755); err != nil {
		return err
	}

	flush := func(err error) error {
		_ = os.RemoveAll(migrator.finalBasePath)
		return err
	}
	if err := migrator.copyFile("manifest.json"); err != nil {
		return flush(err)
	}
	if err := migrator.copyFile(m.Entrypoint); err != nil {
		return flush(err)
	}
	for _, modName := range m.runtime.imported {
		if err := migrator.copyFile(modName); err != nil {
			return flush(err)
		}
	}
	for _, assetName := range m.Assets {
		if err := migrator.copyFile(assetName); err != nil {
			return flush(err)
		}
	}
	nM, err := OpenModule(m.l, migrator.finalBasePath)
	if err != nil {
		return flush(err)
	}
	if err := nM.Load(cookies); err != nil {
		return flush(err)
	}
	nM.ModuleId = hash
	nM.Activated = true
	*m = *nM
	return nil
}
