package mocks

//go:generate mockery --name SalesStore --srcpkg github.com/revlens-lab/project-revlens/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name UserStore --srcpkg github.com/revlens-lab/project-revlens/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Cache --srcpkg github.com/revlens-lab/project-revlens/internal/cache --output ./cache --outpkg cachemocks --with-expecter
