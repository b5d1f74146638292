// Package di wires configuration, connection, dependency cache and repository
// into a Container and hands out typed tables from it.
//
//	container, err := di.NewContainer(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer container.Close()
//
//	orders := di.NewCachedTable[Order](container)
package di
