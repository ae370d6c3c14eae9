package usecase

const (
	textWelcome = "Здравствуйте!\nЭто CRM‑бот для управления лидами и задачами."
	textHelp    = "Доступные команды:\n" +
		"/start – регистрация и приветствие\n" +
		"/newlead – пошаговое создание лида\n" +
		"/myleads – вывод ваших лидов\n" +
		"/newtask – создание новой задачи\n" +
		"/mytasks – вывод ваших задач\n" +
		"/cancel – отмена текущего ввода\n" +
		"Также вы можете использовать кнопки в интерфейсе бота, не вводя команды."
	textUnknown  = "Не понял команду. Список команд: /help"
	textMainMenu = "Главное меню:"

	textLeadName    = "Введите имя лида:"
	textLeadPhone   = "Введите номер телефона:"
	textLeadEmail   = "Введите e‑mail:"
	textLeadSaved   = "Лид успешно добавлен!"
	textNoLeads     = "У вас пока нет лидов."
	textLeadsHeader = "Ваши лиды:"
	textLeadsFailed = "Ошибка при получении списка лидов. Попробуйте позже."

	textTaskTitle       = "Введите название задачи:"
	textTaskTitleEmpty  = "Название не может быть пустым. Введите название задачи:"
	textTaskClient      = "Введите клиента (если нет — отправьте тире):"
	textTaskDue         = "Введите дедлайн в формате YYYY-MM-DD HH:MM (24-часовой):"
	textTaskDueInvalid  = "Некорректный формат. Используйте YYYY-MM-DD HH:MM, например 2025-12-31 18:00. Попробуйте ещё раз:"
	textTaskDescription = "Введите описание задачи (можно оставить пустым — отправьте тире):"
	textChooseAssignee  = "Выберите исполнителя задачи (или введите Telegram‑ID, 0 — назначить себе, либо полное имя):"
	textAssigneeUnknown = "Не удалось определить исполнителя.\n" +
		"Введите Telegram‑ID, 0 для назначения себе или выберите из списка кнопок."
	textTaskSaved  = "Задача успешно добавлена."
	textAssignSelf = "Назначить себе"
	textTextOnly   = "Пожалуйста, отправьте текст."

	textNoTasks        = "У вас пока нет задач."
	textTasksHeader    = "Ваши задачи:"
	textTasksFailed    = "Ошибка при получении списка задач. Попробуйте позже."
	textTaskNotFound   = "Задача не найдена или недоступна."
	textTaskLoadFailed = "Не удалось загрузить задачу. Попробуйте позже."
	textAwaitResult    = "Вы выбрали задачу: %s.\nОтправьте результат (текст или файл)."
	textResultKinds    = "Пожалуйста, отправьте текст или файл."
	textResultSaved    = "✅ Результат прикреплён к задаче. Он отправлен на согласование."
	textNewTaskButton  = "➕ Добавить задачу"
	textMenuButton     = "⬅️ Главное меню"

	textCancelled  = "Ввод отменён."
	textSaveFailed = "Не удалось сохранить данные: сервис временно недоступен. " +
		"Введённое не потеряно — повторите последний шаг чуть позже или отправьте /cancel."

	textAdminMenu      = "Админ-меню"
	textAccessDenied   = "Доступ запрещен"
	textBroadcastStart = "Введите текст рассылки сообщением или пришлите фото с подписью."
	textBroadcastEmpty = "Текст не должен быть пустым. Введите текст рассылки:"
	textBroadcastAsk   = "Подтвердите отправку рассылки:"
	textBroadcastPhoto = "Подтвердите отправку рассылки с фото:"
	textBroadcastPick  = "Выберите: Отправить или Отмена"
	textBroadcastDrop  = "Рассылка отменена."
	textStatsOff       = "Статистика недоступна или отсутствует"
	textFunnelOff      = "Воронка недоступна"
)
