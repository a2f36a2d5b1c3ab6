// Package imgconvert converts uploaded images between raster formats.
//
// A conversion runs in three stages, each in its own package:
//
//   - sniffer identifies the real container format from the first bytes
//   - filevalidator decides whether an upload is acceptable and reports a
//     corrected type when the declared one is wrong
//   - pipeline resizes and re-encodes a decoded image through a Host,
//     enforcing dimension limits before any pixel memory is allocated
//
// The raster package provides the in-process Host. This package wires the
// stages together behind a Converter configured from the environment:
//
//	conv, err := imgconvert.NewFromEnv(imgconvert.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	file, err := filevalidator.OpenFile("photo.heic.jpg")
//	if err != nil {
//		return err
//	}
//
//	artifact, verdict, err := conv.ConvertFile(ctx, file, pipeline.Settings{
//		Format:              "image/webp",
//		Quality:             0.8,
//		Width:               1024,
//		MaintainAspectRatio: true,
//	})
//	if err != nil {
//		return err
//	}
//	if verdict.HasWarning() {
//		log.Println(verdict.Warning)
//	}
//
//	rc, _ := conv.Store().Open(artifact.ID)
//	defer conv.Store().Release(artifact.ID)
//
// Configuration is read from BEAVER_IMGCONVERT_* variables; see Config.
package imgconvert
