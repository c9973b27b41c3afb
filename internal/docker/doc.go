// Package docker checks that the images a recipe references exist in
// their registries.
//
// The Client type wraps the Docker SDK. Registry lookups go through the
// daemon's distribution endpoint, so nothing is pulled and the daemon's
// registry credentials apply.
//
// # Interface Abstraction
//
// The RegistryAPI interface abstracts the Docker SDK, enabling mock
// injection for testing. Use NewClientWithAPI for test scenarios.
//
// # Example
//
//	client, err := docker.NewClient()
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	images, err := docker.CollectImages("dist")
//	if err != nil {
//	    return err
//	}
//	checker := docker.NewImageChecker(client, ui.Console{})
//	return checker.Verify(ctx, images)
package docker
