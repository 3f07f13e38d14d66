// Package config provides mission management for the Mars rover server.
//
// The config package handles:
//   - Loading missions from JSON and classic text files
//   - Mission validation through a dry run of the engine
//   - Default mission management
//   - Mission discovery and listing
//
// Mission Formats:
//
// JSON missions name the plateau and list rovers with their raw location and
// command text:
//
//	{
//	  "name": "Classic",
//	  "plateau": "5 5",
//	  "rovers": [{"location": "1 2 N", "commands": "LMLMLMLMM"}]
//	}
//
// Text missions (.txt) use the classic line format: the plateau on the first
// line, then a location line and a command line per rover.
//
// Usage:
//
//	manager, err := config.NewManager("missions")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mission, err := manager.LoadMission("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	missions, err := manager.ListMissions()
//
// When no "classic" mission exists on disk the built-in two-rover mission is
// used as the default.
package config
