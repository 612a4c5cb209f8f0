package config

// builtinMessages are used when the config file has no text for a key.
var builtinMessages = MessagesConfig{
	"en": {
		"success":                         "OK",
		"default_error":                   "Something went wrong",
		"error_request_invalid_parameter": "The video could not be played: invalid request",
		"error_request_html_player":       "The video could not be played by the player",
		"error_request_not_found":         "The video was not found or has been removed",
		"error_request_access_denied":     "The owner does not allow this video to be embedded",
		"error_request_unknown":           "The video could not be played",
		"error_player_load":               "The player could not be loaded",
		"blank_key":                       "The track has no video key",
		"duplicate_key":                   "The track is already in the queue",
		"duration_too_short":              "The track is too short",
		"duration_too_long":               "The track is too long",
		"playlist_not_found":              "The playlist was not found",
		"queue_empty":                     "The queue is empty",
		"queue_cleared":                   "The queue was cleared",
		"tracks_added":                    "Tracks added to the queue",
	},
	"es": {
		"success":                         "OK",
		"default_error":                   "Algo salió mal",
		"error_request_invalid_parameter": "No se pudo reproducir el video: solicitud no válida",
		"error_request_html_player":       "El reproductor no pudo reproducir el video",
		"error_request_not_found":         "El video no existe o fue eliminado",
		"error_request_access_denied":     "El propietario no permite insertar este video",
		"error_request_unknown":           "No se pudo reproducir el video",
		"error_player_load":               "No se pudo cargar el reproductor",
		"blank_key":                       "La pista no tiene clave de video",
		"duplicate_key":                   "La pista ya está en la cola",
		"duration_too_short":              "La pista es demasiado corta",
		"duration_too_long":               "La pista es demasiado larga",
		"playlist_not_found":              "No se encontró la lista de reproducción",
		"queue_empty":                     "La cola está vacía",
		"queue_cleared":                   "Se vació la cola",
		"tracks_added":                    "Pistas añadidas a la cola",
	},
}
