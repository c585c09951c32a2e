package ports

import "github.com/bnema/ghost-idler/internal/domain"

type Workspace interface {
	Prepare(appID domain.AppID) (string, error)
	WriteMarker(dir string, appID domain.AppID) error
	Remove(appID domain.AppID) error
}
